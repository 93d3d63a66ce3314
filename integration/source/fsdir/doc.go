// Package fsdir reads constraint documents from a directory tree.
//
// Source implements ingest.Source over files matching a doublestar pattern
// (DefaultPattern is "**/constraints_*.json"). Watcher uses fsnotify to push
// creates, writes and deletes into an ingester between sync cycles:
//
//	src, err := fsdir.New("/var/lib/dimreg", fsdir.WithPattern("**/constraints_*.{json,yaml}"))
//	in := ingest.New(src, reg, ingest.WithPrune(true))
//	w, err := fsdir.NewWatcher(src, in, fsdir.WithDebounce(time.Second))
//	g.Go(in.Run(ctx, 5*time.Minute))
//	g.Go(w.Run(ctx))
package fsdir
