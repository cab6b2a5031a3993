package main

// General API documentation for swaggo. Run `swag init -g cmd/koboldd/docs.go`
// to generate docs, then build with -tags=swagger.
//
// @title           koboldd API
// @version         1.0
// @description     KoboldAI compatible HTTP API in front of a llama.cpp command-line runner.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
