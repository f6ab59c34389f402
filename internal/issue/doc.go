// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error reporting for bundlectl.
//
// Two layers live here. ActionableError carries structured context
// (operation, resource, suggestions, failure kind) for any error that
// surfaces to the CLI; the kind sentinels (ErrConfiguration, ErrEnvironment,
// ErrIO, ErrEngine) let callers classify failures with errors.Is without
// depending on concrete types. The Issue catalog holds longer markdown
// explanations, rendered with glamour, for the handful of failures users hit
// most often.
package issue
