package httpapi

import (
	"strconv"

	"github.com/MrEthical07/taskauth/internal/logging"
)

func itoa(n int) string { return strconv.Itoa(n) }

func nopLogger() logging.Logger { return logging.Nop() }
