package logcask

// Version is the logcask release version, printed by the CLI's --version.
const Version = "0.1.0"
