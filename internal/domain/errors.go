package domain

import "errors"

// Audit failures. Every one of them is terminal for the invocation and its
// message is meant to be shown to the user as is.
var (
	ErrEmptyUsername   = errors.New("please enter a GitHub username")
	ErrInvalidUsername = errors.New("GitHub username looks invalid")
	ErrRateLimited     = errors.New("GitHub rate limit hit, try again in a bit")
	ErrFetchFailed     = errors.New("could not fetch PRs from GitHub")
	ErrNoPullRequests  = errors.New("no public merged PRs found")
	ErrNoSizeData      = errors.New("no measurable PR size data found")
)
