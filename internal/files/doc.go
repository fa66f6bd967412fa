// Package files provides file system operations and discovery utilities
// for the xs-stat pipeline.
//
// Discovery lists the regular files of a directory in name order, which
// is the order the pipeline processes raw logs in and the order used to
// pick the latest reference table.
//
// Manager wraps directory bootstrap, copying and atomic writes. Every
// output the pipeline produces goes through WriteAtomic so an
// interrupted run never leaves a partial file behind.
//
// Example usage:
//
//	discovery := files.NewDiscovery(baseDir)
//	logs, err := discovery.ListFiles("raw")
//
//	manager := files.NewManager(logger)
//	err = manager.WriteFileAtomic(path, data)
package files
