// Package c64basic lists tokenized Commodore BASIC V2 programs the way a
// running KERNAL's LIST command would. A stored program is a linked list of
// lines: each line starts with a two-byte pointer to the next line, then a
// two-byte line number, then token/ASCII bytes up to a NUL terminator; a
// next-line pointer of $0000 ends the program. Programs load at $0801.
package c64basic

import (
	"fmt"
	"strings"

	"github.com/ToolSynth/c64/memory"
)

// LoadAddr is where a BASIC program normally sits in RAM.
const LoadAddr = uint16(0x0801)

// tokens maps byte values $80-$CB to BASIC V2 keywords. Bytes below $80 are
// literal PETSCII (printed here as ASCII); bytes above $CB have no keyword
// and stop the listing the way a real LIST stops with ?SYNTAX ERROR.
var tokens = [...]string{
	"END", "FOR", "NEXT", "DATA", "INPUT#", "INPUT", "DIM", "READ",
	"LET", "GOTO", "RUN", "IF", "RESTORE", "GOSUB", "RETURN", "REM",
	"STOP", "ON", "WAIT", "LOAD", "SAVE", "VERIFY", "DEF", "POKE",
	"PRINT#", "PRINT", "CONT", "LIST", "CLR", "CMD", "SYS", "OPEN",
	"CLOSE", "GET", "NEW", "TAB(", "TO", "FN", "SPC(", "THEN",
	"NOT", "STEP", "+", "-", "*", "/", "^", "AND",
	"OR", ">", "=", "<", "SGN", "INT", "ABS", "USR",
	"FRE", "POS", "SQR", "RND", "LOG", "EXP", "COS", "SIN",
	"TAN", "ATN", "PEEK", "LEN", "STR$", "VAL", "ASC", "CHR$",
	"LEFT$", "RIGHT$", "MID$", "GO",
}

// BadToken reports a byte with no BASIC keyword assigned, along with where
// it was found. A real C64 prints ?SYNTAX ERROR and stops listing there.
type BadToken struct {
	Token uint8
	Addr  uint16
}

func (e BadToken) Error() string {
	return fmt.Sprintf("no BASIC token for byte $%02X at $%04X", e.Token, e.Addr)
}

func word(r memory.Bank, addr uint16) uint16 {
	return uint16(r.Read(addr)) | uint16(r.Read(addr+1))<<8
}

// List detokenizes the single BASIC line at pc and returns its text plus the
// address of the next line. End of program (next pointer $0000) returns an
// empty string and 0. On a BadToken the text accumulated so far is returned
// with the error. Output is ASCII; rendering PETSCII graphics characters is
// up to the caller.
func List(pc uint16, r memory.Bank) (string, uint16, error) {
	next := word(r, pc)
	if next == 0x0000 {
		return "", 0, nil
	}
	lineNum := word(r, pc+2)
	pc += 4

	var b strings.Builder
	fmt.Fprintf(&b, "%d ", lineNum)
	for {
		tok := r.Read(pc)
		switch {
		case tok == 0x00:
			return b.String(), next, nil
		case tok < 0x80:
			b.WriteByte(tok)
		case int(tok-0x80) < len(tokens):
			b.WriteString(tokens[tok-0x80])
		default:
			return b.String(), 0, BadToken{Token: tok, Addr: pc}
		}
		pc++
	}
}

// ListProgram walks the whole line chain starting at start and returns one
// string per line. A program whose line links loop back on themselves (or
// otherwise never reach the $0000 end marker) is reported as an error
// instead of listing forever; a real LIST has the same hazard but a user at
// the keyboard to interrupt it.
func ListProgram(start uint16, r memory.Bank) ([]string, error) {
	var lines []string
	seen := make(map[uint16]bool)
	for pc := start; ; {
		if seen[pc] {
			return lines, fmt.Errorf("line link at $%04X loops back on itself", pc)
		}
		seen[pc] = true
		line, next, err := List(pc, r)
		if err != nil {
			return lines, fmt.Errorf("at $%04X: %w", pc, err)
		}
		if next == 0x0000 {
			return lines, nil
		}
		lines = append(lines, line)
		pc = next
	}
}
