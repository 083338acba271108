package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/embedd/docs.go -o docs`.
//
// @title           embedd API
// @version         1.0
// @description     HTTP API for text embeddings with task prefixes, Matryoshka truncation and idle model unloading.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
