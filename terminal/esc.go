// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

// Esc is a two-byte escape: ESC, an optional intermediate, and the final
// control byte. Unrecognized pairs are preserved verbatim, so Esc never
// needs an Unspecified variant.
type Esc struct {
	Intermediate byte // 0 when absent
	Control      byte
}

func (Esc) isAction() {}

// EscCode packs intermediate and control into one comparable value.
type EscCode uint16

func (e Esc) Code() EscCode {
	return EscCode(uint16(e.Intermediate)<<8 | uint16(e.Control))
}

const (
	ESC_FullReset                EscCode = EscCode('c')
	ESC_Index                    EscCode = EscCode('D')
	ESC_NextLine                 EscCode = EscCode('E')
	ESC_CursorPositionLowerLeft  EscCode = EscCode('F')
	ESC_HorizontalTabSet         EscCode = EscCode('H')
	ESC_ReverseIndex             EscCode = EscCode('M')
	ESC_SingleShiftTwo           EscCode = EscCode('N')
	ESC_SingleShiftThree         EscCode = EscCode('O')
	ESC_StartOfGuardedArea       EscCode = EscCode('V')
	ESC_EndOfGuardedArea         EscCode = EscCode('W')
	ESC_ReturnTerminalID         EscCode = EscCode('Z')
	ESC_StringTerminator         EscCode = EscCode('\\')
	ESC_PrivacyMessage           EscCode = EscCode('^')
	ESC_ApplicationProgramCmd    EscCode = EscCode('_')
	ESC_DecSaveCursorPosition    EscCode = EscCode('7')
	ESC_DecRestoreCursorPosition EscCode = EscCode('8')
	ESC_DecApplicationKeyPad     EscCode = EscCode('=')
	ESC_DecNormalKeyPad          EscCode = EscCode('>')

	ESC_DecLineDrawing      EscCode = EscCode(uint16('(')<<8 | uint16('0'))
	ESC_AsciiCharacterSet   EscCode = EscCode(uint16('(')<<8 | uint16('B'))
	ESC_DecDoubleHeightTop  EscCode = EscCode(uint16('#')<<8 | uint16('3'))
	ESC_DecDoubleHeightBot  EscCode = EscCode(uint16('#')<<8 | uint16('4'))
	ESC_DecSingleWidthLine  EscCode = EscCode(uint16('#')<<8 | uint16('5'))
	ESC_DecDoubleWidthLine  EscCode = EscCode(uint16('#')<<8 | uint16('6'))
	ESC_DecScreenAlignment  EscCode = EscCode(uint16('#')<<8 | uint16('8'))
	ESC_ApplicationModeHome EscCode = EscCode(uint16('O')<<8 | uint16('H'))
	ESC_ApplicationModeEnd  EscCode = EscCode(uint16('O')<<8 | uint16('F'))
)

// EncodeEsc renders the escape back to its byte form.
func EncodeEsc(e Esc) string {
	if e.Intermediate != 0 {
		return string([]byte{0x1b, e.Intermediate, e.Control})
	}
	return string([]byte{0x1b, e.Control})
}
