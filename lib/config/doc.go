// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading and path layout
// for the AutoGLM control plane.
//
// Two things live here:
//
//   - [Config]: the launch parameters of the supervised Open-AutoGLM
//     process (endpoint, model, credential, device selector, step
//     budget, language, interpreter). Loaded from <home>/config.yaml,
//     or from an explicit path via [LoadFile]. A missing file yields
//     [Default], whose API key is a placeholder that [Config.Validate]
//     rejects, so nothing is ever launched with an unset credential.
//
//   - [Paths]: every on-disk location the control plane touches, all
//     rooted at the home directory (AUTOGLM_HOME, default ~/.autoglm)
//     except the Open-AutoGLM checkout (AUTOGLM_DIR, default
//     ~/Open-AutoGLM).
//
// ${HOME} and ${VAR:-default} patterns in path values are expanded.
// No other environment variables override config values.
//
// This package depends on no other packages in this module.
package config
