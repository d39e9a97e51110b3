package github

import (
	"strings"
	"time"
)

// Repository is the subset of repository metadata used in reports.
type Repository struct {
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Language      string    `json:"language"`
	Stars         int       `json:"stars"`
	Forks         int       `json:"forks"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Size          int       `json:"size"`
	DefaultBranch string    `json:"default_branch"`
	Topics        []string  `json:"topics"`
	License       string    `json:"license"`
	HTMLURL       string    `json:"html_url"`
}

// ContentEntry is one item of a directory listing.
type ContentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	SHA         string `json:"sha"`
	DownloadURL string `json:"download_url,omitempty"`
}

// IsFile reports whether the entry is a regular file.
func (e ContentEntry) IsFile() bool {
	return e.Type == "file"
}

// Commit is a condensed commit.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	URL     string    `json:"url"`
}

// Contributor is a repository contributor.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	AvatarURL     string `json:"avatar_url"`
	ProfileURL    string `json:"html_url"`
}

// RateLimit is the core API quota.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     int64     `json:"reset"`
	ResetTime time.Time `json:"reset_time"`
}

type rawRepository struct {
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     *string   `json:"description"`
	Language        *string   `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Size            int       `json:"size"`
	DefaultBranch   string    `json:"default_branch"`
	Topics          []string  `json:"topics"`
	HTMLURL         string    `json:"html_url"`
	License         *struct {
		Name string `json:"name"`
	} `json:"license"`
}

func (r rawRepository) toRepository() *Repository {
	repo := &Repository{
		Name:          r.Name,
		FullName:      r.FullName,
		Description:   "No description available",
		Language:      "Unknown",
		Stars:         r.StargazersCount,
		Forks:         r.ForksCount,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Size:          r.Size,
		DefaultBranch: r.DefaultBranch,
		Topics:        r.Topics,
		License:       "No license",
		HTMLURL:       r.HTMLURL,
	}
	if r.Description != nil && *r.Description != "" {
		repo.Description = *r.Description
	}
	if r.Language != nil && *r.Language != "" {
		repo.Language = *r.Language
	}
	if r.License != nil && r.License.Name != "" {
		repo.License = r.License.Name
	}
	if repo.Topics == nil {
		repo.Topics = []string{}
	}
	return repo
}

type rawFile struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type rawCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

func (r rawCommit) toCommit() Commit {
	sha := r.SHA
	if len(sha) > 7 {
		sha = sha[:7]
	}
	message, _, _ := strings.Cut(r.Commit.Message, "\n")
	return Commit{
		SHA:     sha,
		Message: message,
		Author:  r.Commit.Author.Name,
		Date:    r.Commit.Author.Date,
		URL:     r.HTMLURL,
	}
}

type rawRateLimit struct {
	Resources struct {
		Core struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		} `json:"core"`
	} `json:"resources"`
}
