package toolchain

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"santool/toolerr"
)

// RelayLines reads r until end of stream and calls onLine for each line,
// without its trailing newline. Lines have no length limit. A read failure
// stops the relay.
func RelayLines(r io.Reader, onLine func(string)) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" && onLine != nil {
			line = strings.TrimSuffix(line, "\n")
			onLine(strings.TrimSuffix(line, "\r"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return toolerr.Wrap(toolerr.KindIO, err, "unable to read runner output")
		}
	}
}
