// Package backends opens the audit log and statistics stores selected by
// configuration and registers a health check for each networked dependency.
//
//	set, err := backends.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer set.Close()
//
//	reader := audit.NewReader(set.Audit, audit.ReaderConfig{})
package backends
