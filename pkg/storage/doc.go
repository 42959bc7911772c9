// Package storage turns fetched collection images into PNG thumbnails on disk.
//
// The Manager decodes JPEG, PNG, GIF, BMP, TIFF and WebP input, fits it inside a
// square box (256px by default) without upscaling, and writes
// {output}/pfps/{name}.png through a temporary file and rename so a crash never
// leaves a half-written thumbnail. Existing files are replaced.
//
// File names come from SanitizeName, which reduces a collection name to ASCII
// letters, digits, '_', '.' and '-'. Path separators and control characters
// cannot survive it, so a name like "../../etc/passwd" becomes "etc_passwd".
//
// Usage:
//
//	manager, err := storage.NewManager(cfg.Output, log)
//	if err != nil {
//	    return err
//	}
//	path, err := manager.Persist(&record)
package storage
