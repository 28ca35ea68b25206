package keyboard

// blackKeysInOctave marks the black keys of one octave starting at C.
var blackKeysInOctave = [12]bool{
	false, true, false, false, true, false, true, false, false, true, false, true,
}

// ClassOfPitch classifies a pitch class or absolute pitch.
func ClassOfPitch(pitch int) KeyClass {
	pc := pitch % 12
	if pc < 0 {
		pc += 12
	}
	if blackKeysInOctave[pc] {
		return Black
	}
	return White
}
