package common

// v0.1.0 - legacy and current eras, CSV output
// v0.2.0 - sonar input, database and Kafka sinks, daemon

const Version = "0.2.0"
