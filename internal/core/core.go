// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"database/sql"
	"time"
)

// QARecord is a single generated question/answer pair tied to the function it
// was derived from. Records are immutable once created and are collected in
// the order the pipeline produced them.
type QARecord struct {
	Question    string `json:"question" db:"question"`
	Answer      string `json:"answer" db:"answer"`
	CodeSnippet string `json:"code_snippet" db:"code_snippet"`
	Reasoning   string `json:"reasoning" db:"reasoning"`
	File        string `json:"file" db:"file_path"`
	Repo        string `json:"repo" db:"repo_name"`
}

// CodeFunction is one function definition extracted from a source file.
type CodeFunction struct {
	Name        string
	Source      string
	FilePath    string
	StartLine   int
	EndLine     int
	Language    string
	PackageName string
}

// GenerationEvent describes one requested dataset-generation run. Either
// RepoPath (local) or RepoURL (remote, cloned into a temp dir) must be set.
type GenerationEvent struct {
	RepoPath   string
	RepoURL    string
	RepoName   string
	HeadSHA    string
	OutputPath string
	Format     string
	Dedupe     bool
	Resume     bool
}

// GenerationStats summarizes a completed run.
type GenerationStats struct {
	FilesScanned      int
	FilesSkipped      int
	FilesFailed       int
	FunctionsFound    int
	RecordsProduced   int
	DuplicatesDropped int
	Duration          time.Duration
}

// GenerationRun is the persisted record of a run, used for history and for
// resuming interrupted runs.
type GenerationRun struct {
	ID              int64        `db:"id"`
	RepoName        string       `db:"repo_name"`
	RepoPath        string       `db:"repo_path"`
	HeadSHA         string       `db:"head_sha"`
	Model           string       `db:"model"`
	Status          string       `db:"status"`
	FilesScanned    int          `db:"files_scanned"`
	FunctionsFound  int          `db:"functions_found"`
	RecordsProduced int          `db:"records_produced"`
	StartedAt       time.Time    `db:"started_at"`
	FinishedAt      sql.NullTime `db:"finished_at"`
}

// Run lifecycle states.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
