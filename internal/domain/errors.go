package domain

import "errors"

var (
	// ErrInvalidInput is returned when the caller supplied a missing or malformed
	// image, food name or meal payload
	ErrInvalidInput = errors.New("invalid input")

	// ErrParseFailure is returned when the model reply does not contain parseable nutrition JSON
	ErrParseFailure = errors.New("failed to parse nutrition data, please try again")

	// ErrUpstreamFailure is returned when the generative model request fails
	ErrUpstreamFailure = errors.New("model request failed")

	// ErrStorageFailure is returned when the meal log cannot be read or written
	ErrStorageFailure = errors.New("meal log storage failed")
)
