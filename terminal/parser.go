/*

MIT License

Copyright (c) 2022 wangqi

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.

*/

package terminal

import "unicode/utf8"

// parser states
const (
	InputState_Normal = iota
	InputState_Escape
	InputState_Escape_Int
	InputState_CSI
	InputState_OSC
	InputState_OSC_Esc
	InputState_DCS
	InputState_DCS_Data
	InputState_DCS_Esc
	InputState_Ignore
	InputState_Ignore_Esc
)

const (
	maxEscOps    = 16
	maxParamVal  = 65535
	maxOscBuffer = 8192
)

// Parser is the DEC-ANSI byte state machine. Feed it chunks of bytes
// in any split; it buffers partial UTF-8 sequences across calls and
// emits typed Actions.
type Parser struct {
	state int

	params        []int64
	curParam      int64
	curParamSeen  bool
	intermediates []byte

	oscParams [][]byte
	oscCur    []byte
	oscLen    int

	partial []byte

	actions []Action
}

func NewParser() *Parser {
	return &Parser{state: InputState_Normal}
}

func (p *Parser) setState(newState int) {
	p.state = newState
}

func (p *Parser) emit(a Action) {
	p.actions = append(p.actions, a)
}

// Parse decodes one chunk. The returned slice is valid until the next
// call.
func (p *Parser) Parse(buf []byte) []Action {
	p.actions = p.actions[:0]

	input := buf
	if len(p.partial) > 0 {
		input = append(p.partial, buf...)
		p.partial = nil
	}

	i := 0
	for i < len(input) {
		b := input[i]
		if p.state == InputState_Normal && b >= 0x80 {
			if !utf8.FullRune(input[i:]) && len(input)-i < utf8.UTFMax {
				// incomplete cluster at the chunk boundary
				p.partial = append(p.partial, input[i:]...)
				break
			}
			r, size := utf8.DecodeRune(input[i:])
			p.emit(Print(r))
			i += size
			continue
		}
		p.processByte(b)
		i++
	}
	return p.actions
}

func (p *Parser) processByte(b byte) {
	switch p.state {
	case InputState_Normal:
		p.handleGround(b)
	case InputState_Escape:
		p.handleEscape(b)
	case InputState_Escape_Int:
		p.handleEscapeInt(b)
	case InputState_CSI:
		p.handleCSI(b)
	case InputState_OSC:
		p.handleOSC(b)
	case InputState_OSC_Esc:
		p.handleOSCEsc(b)
	case InputState_DCS:
		p.handleDCS(b)
	case InputState_DCS_Data:
		p.handleDCSData(b)
	case InputState_DCS_Esc:
		p.handleDCSEsc(b)
	case InputState_Ignore:
		p.handleIgnore(b)
	case InputState_Ignore_Esc:
		p.handleIgnoreEsc(b)
	}
}

func (p *Parser) handleGround(b byte) {
	switch {
	case b == 0x1b:
		p.setState(InputState_Escape)
	case b == 0x7f:
		// swallowed, as in xterm
	case b < 0x20:
		p.emit(Control(b))
	default:
		p.emit(Print(rune(b)))
	}
}

func (p *Parser) clearSequence() {
	p.params = p.params[:0]
	p.curParam = 0
	p.curParamSeen = false
	p.intermediates = p.intermediates[:0]
}

func (p *Parser) handleEscape(b byte) {
	switch {
	case b == '[':
		p.clearSequence()
		p.setState(InputState_CSI)
	case b == ']':
		p.oscParams = p.oscParams[:0]
		p.oscCur = p.oscCur[:0]
		p.oscLen = 0
		p.setState(InputState_OSC)
	case b == 'P':
		p.clearSequence()
		p.setState(InputState_DCS)
	case b == 'X' || b == '^' || b == '_':
		p.setState(InputState_Ignore)
	case b >= 0x20 && b <= 0x2f:
		p.intermediates = p.intermediates[:0]
		p.intermediates = append(p.intermediates, b)
		p.setState(InputState_Escape_Int)
	case b >= 0x30 && b <= 0x7e:
		p.emit(Esc{Control: b})
		p.setState(InputState_Normal)
	case b == 0x1b:
		// restart
	case b == 0x18 || b == 0x1a:
		p.setState(InputState_Normal)
	default:
		p.emit(Control(b))
	}
}

func (p *Parser) handleEscapeInt(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2f:
		// extra intermediates are not representable; keep the first
	case b >= 0x30 && b <= 0x7e:
		var inter byte
		if len(p.intermediates) > 0 {
			inter = p.intermediates[0]
		}
		p.emit(Esc{Intermediate: inter, Control: b})
		p.setState(InputState_Normal)
	case b == 0x18 || b == 0x1a:
		p.setState(InputState_Normal)
	case b == 0x1b:
		p.setState(InputState_Escape)
	}
}

// collectNumericParameters accumulates digits and separators shared by
// CSI and DCS headers. Returns false when b is not a parameter byte.
func (p *Parser) collectNumericParameters(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		if len(p.params) < maxEscOps {
			p.curParam = p.curParam*10 + int64(b-'0')
			if p.curParam > maxParamVal {
				p.curParam = maxParamVal
			}
			p.curParamSeen = true
		}
		return true
	case b == ';' || b == ':':
		if len(p.params) < maxEscOps {
			p.params = append(p.params, p.curParam)
		}
		p.curParam = 0
		p.curParamSeen = false
		return true
	}
	return false
}

func (p *Parser) finishParams() []int64 {
	if p.curParamSeen || len(p.params) > 0 {
		p.params = append(p.params, p.curParam)
	}
	return p.params
}

func (p *Parser) handleCSI(b byte) {
	switch {
	case p.collectNumericParameters(b):
	case b >= 0x3c && b <= 0x3f, b >= 0x20 && b <= 0x2f:
		p.intermediates = append(p.intermediates, b)
	case b >= 0x40 && b <= 0x7e:
		for _, cmd := range ParseCSI(p.finishParams(), p.intermediates, b) {
			p.emit(cmd)
		}
		p.setState(InputState_Normal)
	case b == 0x1b:
		p.setState(InputState_Escape)
	case b == 0x18 || b == 0x1a:
		p.setState(InputState_Normal)
	case b == 0x7f:
		// ignored
	case b < 0x20:
		p.emit(Control(b))
	}
}

func (p *Parser) oscPut(b byte) {
	if p.oscLen < maxOscBuffer {
		p.oscCur = append(p.oscCur, b)
		p.oscLen++
	}
}

func (p *Parser) dispatchOSC() {
	p.oscParams = append(p.oscParams, append([]byte(nil), p.oscCur...))
	p.emit(ParseOSC(p.oscParams))
	p.setState(InputState_Normal)
}

func (p *Parser) handleOSC(b byte) {
	switch {
	case b == 0x07:
		p.dispatchOSC()
	case b == 0x1b:
		p.setState(InputState_OSC_Esc)
	case b == ';':
		p.oscParams = append(p.oscParams, append([]byte(nil), p.oscCur...))
		p.oscCur = p.oscCur[:0]
	case b >= 0x20:
		p.oscPut(b)
	}
}

func (p *Parser) handleOSCEsc(b byte) {
	if b == '\\' {
		p.dispatchOSC()
		return
	}
	// the escape aborts the string; reprocess it
	p.dispatchOSC()
	p.setState(InputState_Escape)
	p.handleEscape(b)
}

func (p *Parser) handleDCS(b byte) {
	switch {
	case p.collectNumericParameters(b):
	case b >= 0x3c && b <= 0x3f, b >= 0x20 && b <= 0x2f:
		p.intermediates = append(p.intermediates, b)
	case b >= 0x40 && b <= 0x7e:
		p.emit(EnterDeviceControl{
			Params:        append([]int64(nil), p.finishParams()...),
			Intermediates: append([]byte(nil), p.intermediates...),
			Final:         b,
		})
		p.setState(InputState_DCS_Data)
	case b == 0x18 || b == 0x1a:
		p.setState(InputState_Normal)
	case b == 0x1b:
		p.setState(InputState_Escape)
	}
}

func (p *Parser) handleDCSData(b byte) {
	switch {
	case b == 0x1b:
		p.setState(InputState_DCS_Esc)
	case b == 0x18 || b == 0x1a:
		p.emit(ExitDeviceControl{})
		p.setState(InputState_Normal)
	default:
		p.emit(DeviceControlData(b))
	}
}

func (p *Parser) handleDCSEsc(b byte) {
	p.emit(ExitDeviceControl{})
	if b == '\\' {
		p.setState(InputState_Normal)
		return
	}
	p.setState(InputState_Escape)
	p.handleEscape(b)
}

func (p *Parser) handleIgnore(b byte) {
	switch b {
	case 0x1b:
		p.setState(InputState_Ignore_Esc)
	case 0x18, 0x1a:
		p.setState(InputState_Normal)
	}
}

func (p *Parser) handleIgnoreEsc(b byte) {
	if b == '\\' {
		p.setState(InputState_Normal)
		return
	}
	p.setState(InputState_Ignore)
}
