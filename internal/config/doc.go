// Package config provides configuration structures and utilities for telnetpot.
// It defines the main configuration options for the listener, session
// behavior, capture storage, and report generation preferences.
package config
