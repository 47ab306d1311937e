package structures

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
	// Port overrides webServer.port when set.
	Port int
}
