// Package testutil provides test utilities and mocks for upload operations.
// This package is internal and should only be used for testing within the module.
package testutil
