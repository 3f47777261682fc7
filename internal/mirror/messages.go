package mirror

// Sync log message templates. Every mutating or failed entry produces exactly one.
const (
	msgUpdated         = "%s updated."
	msgUpdateFailed    = "%s failed to update."
	msgCopied          = "File %s copied to the directory %s."
	msgCopyFailed      = "File %s failed to copy to the directory %s."
	msgRemoved         = "Removed the file %s from %s."
	msgRemoveFailed    = "File %s could not be removed from the directory %s."
	msgDirRemoveFailed = "Directory %s could not be removed from the directory %s."
)
