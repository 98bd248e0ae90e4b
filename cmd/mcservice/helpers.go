package main

import "github.com/quasar/launchercore/internal/loader"

func loaderTypeOf(s string) loader.Type {
	return loader.Type(s)
}
