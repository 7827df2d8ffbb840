package main

// main.go is the thin entrypoint, in the same shape as the teacher's
// chirpstack-network-server cmd/*/main.go: parse flags and hand off to
// the command layer in root.go, which owns all viper/cobra wiring.

func main() {
	Execute()
}
