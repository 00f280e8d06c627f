// Package config provides configuration parsing for querysync.
//
// The configuration is stored in querysync.json in the working directory
// or one of its parents. This package handles loading, saving, and
// validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "search": {
//	    "debounce": "500ms",
//	    "param": "search"
//	  },
//	  "router": {
//	    "startURL": "/libraries?search=central"
//	  },
//	  "dataset": {
//	    "fixture": "./libraries.json",
//	    "cells": ["FullName", "ObjectAddress"]
//	  },
//	  "log": {
//	    "level": "debug"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "querysync"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Debounce:", cfg.SearchDebounce())
package config
