// Package config reads the server environment and maps it onto
// authbridge.Config.
//
// A .env file in the working directory is loaded first when present.
// Variables already set in the process environment win.
package config
