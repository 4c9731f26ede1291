// Package validation provides centralized input validation logic.
// This includes bucket name, object key, content metadata, and limit checks.
//
// Every upload is validated before the first store call so a rejected request
// never leaves a multipart session behind.
package validation
