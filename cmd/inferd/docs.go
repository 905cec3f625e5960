package main

// General API documentation for swaggo. Run `swag init` to regenerate docs.
//
// @title           inferd API
// @version         1.0
// @description     HTTP API serving predictions from a preloaded model artifact.
//
// @BasePath  /
//
// @schemes http
