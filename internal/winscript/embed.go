package winscript

import _ "embed"

// nsisTemplate is the NSIS installer definition. The generated .nsi is
// consumed by makensis.
//
//go:embed nsis.tmpl.nsi
var nsisTemplate string

// innoTemplate is the Inno Setup definition. The generated .iss is
// consumed by iscc.
//
//go:embed inno.tmpl.iss
var innoTemplate string
