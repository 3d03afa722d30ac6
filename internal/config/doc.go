// ProctorWatch - Live Exam Proctoring Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/proctorwatch

// Package config loads and validates ProctorWatch configuration.
//
// Configuration is layered with Koanf v2. Later layers override earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file: $CONFIG_PATH, ./config.yaml or /etc/proctorwatch/config.yaml
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// A .env file in the working directory is loaded into the process
// environment before step 3 (LoadDotEnv). Variables already set in the
// environment win over .env entries.
//
// # Analysis services
//
// Each external analysis service has an independent section:
//
//	GAZE_SERVICE_URL=http://localhost:5000        ENABLE_GAZE_TRACKING=true
//	AI_DETECTION_SERVICE_URL=http://localhost:5001 ENABLE_AI_DETECTION=true
//	FACE_RECOGNITION_SERVICE_URL=http://localhost:5002 ENABLE_FACE_RECOGNITION=true
//
// An enabled service is health-checked once at startup; a failed check
// disables it for the lifetime of the process regardless of configuration.
//
// # Example config.yaml
//
//	server:
//	  port: 3000
//	analysis:
//	  min_interval: 10s
//	  gaze:
//	    enabled: true
//	    url: http://gaze:5000
//	    timeout: 3s
//	alerts:
//	  webhook:
//	    enabled: true
//	    url: https://hooks.example.com/proctor
package config
