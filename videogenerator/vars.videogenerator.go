package videogenerator

var colorOrange = Color{1, 0.5, 0}
var colorGreen = Color{0.2, 1, 0.2}
var colorBlue = Color{0.5, 0.85, 1}
var colorYellow = Color{0.8, 0.6, 0.05}
var colorPink = Color{1, 0.6, 0.7}

// highlight colours cycle by velocity band, quietest first
var colors = []Color{colorBlue, colorGreen, colorYellow, colorOrange, colorPink}

var colorBackground = Color{0, 1, 0}
var colorWhiteKey = Color{0.5, 0.5, 0.5}
var colorBlackKey = Color{0.25, 0.25, 0.25}
var colorOutline = Color{1, 1, 1}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

const framePattern = "fr%05d.png"
