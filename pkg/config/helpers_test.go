package config

// resetGlobalManager clears the process-wide manager between tests.
func resetGlobalManager() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = nil
}
