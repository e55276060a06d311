// Package storage manages the local images directory.
//
// The Manager creates the directory on first use, or reuses one left by an
// earlier run, and saves each photo through a temporary file that is renamed
// into place once fully written. A photo whose name already exists in the
// directory is replaced.
//
// Usage:
//
//	manager, err := storage.NewManager("images")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if manager.Created() {
//	    fmt.Println("Created images directory.")
//	}
//	err = manager.SavePhoto(body, storage.FileName("AB_12", "A"))
package storage
