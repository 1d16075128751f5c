package main

import (
	"teetimes-backend/cmd/teetimes/commands"
	"teetimes-backend/internal/components/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
