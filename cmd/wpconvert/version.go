package main

// version is printed by --version. It can be overridden at build time via
// ldflags.
var version = "0.0.1"
