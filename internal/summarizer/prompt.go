package summarizer

import "fmt"

// BuildRepositoryPrompt asks for a two-sentence repository description.
func BuildRepositoryPrompt(repoName, content string) string {
	return fmt.Sprintf("Create a professional 2-sentence description for GitHub repository '%s'.\n"+
		"First sentence: State the project's main purpose and technology stack.\n"+
		"Second sentence: Highlight 2-3 key features or components.\n"+
		"Be specific and technical. Example format:\n"+
		"'[Repo] - A [language] application for [purpose] using [technologies]. "+
		"Features include [feature1], [feature2], and [feature3].'\n\n"+
		"Repository content:\n%s", repoName, content)
}

// BuildFilePrompt asks for a one or two sentence technical summary of a file.
func BuildFilePrompt(filename, content string) string {
	return fmt.Sprintf(`Analyze this %s code and provide a concise, technical summary in 1-2 sentences.

File: %s
Code:
%s

Please provide a brief summary that describes:
1. What this code does (main purpose/functionality)
2. Key components (classes, functions, modules used)
3. Any notable patterns or complexity

Keep the summary concise and technical, starting directly with the description (no "This code" prefix).`,
		LanguageFor(filename), filename, content)
}
