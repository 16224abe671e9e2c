// Package config handles the root directory layout, container name
// validation and user settings for containify.
//
// # Root Directory
//
// All state lives under a single root directory, resolved in priority order:
//
//  1. The --root flag
//  2. The CONTAINIFY_ROOT environment variable
//  3. /containify
//
// The layout under the root:
//
//	<root>/
//	  registry.json      # durable container registry
//	  settings.toml      # user defaults for the create command
//	  containers/
//	    <name>/          # one workspace directory per container
//
// # Container Names
//
// Names are restricted to letters, digits, underscores and hyphens so they
// remain safe as both filesystem components and docker instance names.
// Workspace paths are derived with filepath-securejoin so a name can never
// escape the containers directory.
package config
