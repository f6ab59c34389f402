// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// It consolidates the 3-step CUE parsing pattern used for bundle descriptors:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// # Usage
//
//	//go:embed bundle_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[Descriptor](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Bundle",
//	    cueutil.WithFilename("bundle.cue"),
//	)
//	if err != nil {
//	    return nil, err // Error includes the CUE path for debugging
//	}
//	return result.Value, nil
package cueutil
