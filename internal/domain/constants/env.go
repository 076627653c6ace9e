package constants

// EnvLocal is the env.env value of a developer machine.
const EnvLocal = "local"
