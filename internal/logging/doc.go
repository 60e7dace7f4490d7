// Package logging builds the slog loggers used throughout filmstrip and
// provides the attribute helpers shared by every component. Output is
// either a human-oriented console format or line-delimited JSON, with
// optional duplication into a log file.
package logging
