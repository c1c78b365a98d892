// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

//go:build windows

package config

// WarnInsecurePermissions is a no-op on Windows, where POSIX permission bits
// do not reflect the effective ACLs.
func WarnInsecurePermissions(path string) {}
