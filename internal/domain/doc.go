// Package domain holds the shared entity types persisted by Homeroom:
// ingested emails and their attachments, child profiles, extracted todos
// and events, analysis records, and tracked jobs.
package domain
