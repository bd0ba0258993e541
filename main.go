package main

import (
	"log"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

//	@title			Bookstore API
//	@version		1.0.0
//	@description	In-memory bookstore catalog with search, stock and purchase operations.
//	@BasePath		/
//	@schemes		http
func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
