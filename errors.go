package main

import "fmt"

// FetchErrorMessage is what users see for any failed load, whatever the cause.
const FetchErrorMessage = "Failed to fetch or parse the podcast RSS feed."

// FetchOrParseError is returned for every failure of a load: retrieval, XML
// parsing, or a document without an rss channel. Op names the failing stage
// for logs only.
type FetchOrParseError struct {
	URL string
	Op  string
	Err error
}

func (e *FetchOrParseError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.URL, e.Err)
}

func (e *FetchOrParseError) Unwrap() error {
	return e.Err
}
