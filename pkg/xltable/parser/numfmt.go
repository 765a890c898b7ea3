package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"
)

const (
	maxNonScientificNumber = 1e11
	minNonScientificNumber = 1e-9
	generalDecimals        = 10
)

type sectionKind int

const (
	sectionGeneral sectionKind = iota
	sectionText
	sectionNumber
	sectionDate
	sectionLiteral
	sectionFraction
)

type formatSection struct {
	kind     sectionKind
	text     string
	date     []dateToken
	number   numberSpec
	fraction fractionSpec
}

// numberRenderer renders numeric cell values with spreadsheet number format
// patterns. Parsed patterns are cached for the lifetime of the renderer.
type numberRenderer struct {
	date1904 bool
	cache    map[string][]formatSection
}

func newNumberRenderer(date1904 bool) *numberRenderer {
	return &numberRenderer{
		date1904: date1904,
		cache:    make(map[string][]formatSection),
	}
}

func (r *numberRenderer) format(value float64, pattern string) string {
	sections, ok := r.cache[pattern]
	if !ok {
		sections = parseNumberFormat(pattern)
		r.cache[pattern] = sections
	}

	section := sections[0]
	negativeSection := false
	switch {
	case value < 0 && len(sections) > 1:
		section = sections[1]
		negativeSection = true
	case value == 0 && len(sections) > 2:
		section = sections[2]
	}

	switch section.kind {
	case sectionDate:
		t, err := excelize.ExcelDateToTime(value, r.date1904)
		if err != nil || value < 0 {
			return formatGeneral(value)
		}
		return renderDate(section.date, t, value)
	case sectionLiteral:
		return section.text
	case sectionNumber, sectionFraction:
		var text string
		if section.kind == sectionFraction {
			text = section.fraction.render(math.Abs(value))
		} else {
			text = section.number.render(math.Abs(value))
		}
		if !negativeSection && value < 0 && strings.ContainsAny(text, "123456789") {
			return "-" + text
		}
		return text
	default:
		return formatGeneral(value)
	}
}

func parseNumberFormat(pattern string) []formatSection {
	ps := nfp.NumberFormatParser()
	var result []formatSection
	for i, section := range ps.Parse(pattern) {
		if section.Type == nfp.TokenSectionText {
			continue
		}
		if i > 0 && len(section.Items) == 0 {
			// an empty negative or zero section displays nothing
			result = append(result, formatSection{kind: sectionLiteral})
			continue
		}
		result = append(result, parseSection(section.Items))
	}
	if len(result) == 0 {
		return []formatSection{{kind: sectionGeneral}}
	}
	return result
}

func parseSection(items []nfp.Token) formatSection {
	if len(items) == 0 {
		return formatSection{kind: sectionGeneral}
	}
	for _, token := range items {
		if token.TType == nfp.TokenTypeGeneral {
			return formatSection{kind: sectionGeneral}
		}
	}
	if isDateSection(items) {
		return formatSection{kind: sectionDate, date: parseDateTokens(items)}
	}
	if hasToken(items, nfp.TokenTypeFraction) {
		frac, ok := parseFractionSpec(items)
		if !ok {
			return formatSection{kind: sectionGeneral}
		}
		return formatSection{kind: sectionFraction, fraction: frac}
	}
	spec, ok := parseNumberSpec(items)
	switch {
	case !ok:
		return formatSection{kind: sectionGeneral}
	case spec.intDigits == 0 && !spec.decimalPoint:
		return formatSection{kind: sectionLiteral, text: spec.prefix}
	}
	return formatSection{kind: sectionNumber, number: spec}
}

// isDateFormat reports whether the positive section of pattern renders a
// date or time.
func isDateFormat(pattern string) bool {
	return parseNumberFormat(pattern)[0].kind == sectionDate
}

func hasToken(items []nfp.Token, tokenType string) bool {
	for _, token := range items {
		if token.TType == tokenType {
			return true
		}
	}
	return false
}

func isPlaceholder(token nfp.Token) bool {
	switch token.TType {
	case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDigitalPlaceHolder:
		return true
	}
	return false
}

// dateField maps a date and time token to its field letter, or 0 for codes
// such as era names that are kept as literal text.
func dateField(token nfp.Token) byte {
	if token.TType != nfp.TokenTypeDateTimes || token.TValue == "" {
		return 0
	}
	lower := strings.ToLower(token.TValue)
	if lower == "am/pm" || lower == "a/p" {
		return 'a'
	}
	switch lower[0] {
	case 'y', 'm', 'd', 'h', 's':
		return lower[0]
	}
	return 0
}

func isDateSection(items []nfp.Token) bool {
	for _, token := range items {
		if token.TType == nfp.TokenTypeElapsedDateTimes && elapsedUnit(token.TValue) != 0 {
			return true
		}
		if dateField(token) != 0 {
			return true
		}
	}
	return false
}

// elapsedUnit returns 'h', 'm' or 's' for [h], [mm], [ss] style brackets.
func elapsedUnit(content string) byte {
	if content == "" {
		return 0
	}
	first := unicode.ToLower(rune(content[0]))
	for _, r := range content {
		if unicode.ToLower(r) != first {
			return 0
		}
	}
	switch first {
	case 'h', 'm', 's':
		return byte(first)
	}
	return 0
}

type dateToken struct {
	kind  byte // y m d h s a(m/pm) e(lapsed) f(raction) l(iteral); 'n' is minutes
	count int
	unit  byte
	text  string
}

func parseDateTokens(items []nfp.Token) []dateToken {
	var tokens []dateToken
	literal := func(s string) {
		if n := len(tokens); n > 0 && tokens[n-1].kind == 'l' {
			tokens[n-1].text += s
			return
		}
		tokens = append(tokens, dateToken{kind: 'l', text: s})
	}

	for i := 0; i < len(items); i++ {
		token := items[i]
		switch token.TType {
		case nfp.TokenTypeAlignment, nfp.TokenTypeRepeatsChar, nfp.TokenTypeColor,
			nfp.TokenTypeCondition, nfp.TokenTypeCurrencyLanguage, nfp.TokenTypeSwitchArgument:
		case nfp.TokenTypeElapsedDateTimes:
			if unit := elapsedUnit(token.TValue); unit != 0 {
				tokens = append(tokens, dateToken{kind: 'e', unit: unit, count: len(token.TValue)})
			}
		case nfp.TokenTypeDateTimes:
			switch field := dateField(token); field {
			case 0:
				literal(token.TValue)
			case 'a':
				tokens = append(tokens, dateToken{kind: 'a', text: token.TValue})
			default:
				tokens = append(tokens, dateToken{kind: field, count: len(token.TValue)})
			}
		case nfp.TokenTypeDecimalPoint:
			if n := len(tokens); n > 0 && isSecondsToken(tokens[n-1]) &&
				i+1 < len(items) && items[i+1].TType == nfp.TokenTypeZeroPlaceHolder {
				tokens = append(tokens, dateToken{kind: 'f', count: len(items[i+1].TValue)})
				i++
				continue
			}
			literal(token.TValue)
		default:
			literal(token.TValue)
		}
	}

	// m and mm mean minutes next to hours or seconds.
	for i := range tokens {
		if tokens[i].kind != 'm' || tokens[i].count > 2 {
			continue
		}
		if prev := previousFieldToken(tokens, i); prev != nil && isHoursToken(*prev) {
			tokens[i].kind = 'n'
			continue
		}
		if next := nextFieldToken(tokens, i); next != nil && isSecondsToken(*next) {
			tokens[i].kind = 'n'
		}
	}
	return tokens
}

func isHoursToken(t dateToken) bool {
	return t.kind == 'h' || (t.kind == 'e' && t.unit == 'h')
}

func isSecondsToken(t dateToken) bool {
	return t.kind == 's' || (t.kind == 'e' && t.unit == 's')
}

func previousFieldToken(tokens []dateToken, i int) *dateToken {
	for j := i - 1; j >= 0; j-- {
		if tokens[j].kind != 'l' {
			return &tokens[j]
		}
	}
	return nil
}

func nextFieldToken(tokens []dateToken, i int) *dateToken {
	for j := i + 1; j < len(tokens); j++ {
		if tokens[j].kind != 'l' {
			return &tokens[j]
		}
	}
	return nil
}

func renderDate(tokens []dateToken, t time.Time, serial float64) string {
	hasAMPM := false
	fraction := 0
	for _, tok := range tokens {
		switch tok.kind {
		case 'a':
			hasAMPM = true
		case 'f':
			fraction = tok.count
		}
	}
	t = t.Round(time.Duration(math.Pow10(9 - fraction)))

	var b strings.Builder
	for _, tok := range tokens {
		switch tok.kind {
		case 'l':
			b.WriteString(tok.text)
		case 'y':
			if tok.count <= 2 {
				fmt.Fprintf(&b, "%02d", t.Year()%100)
			} else {
				fmt.Fprintf(&b, "%04d", t.Year())
			}
		case 'm':
			switch tok.count {
			case 1:
				b.WriteString(strconv.Itoa(int(t.Month())))
			case 2:
				fmt.Fprintf(&b, "%02d", int(t.Month()))
			case 3:
				b.WriteString(t.Month().String()[:3])
			case 4:
				b.WriteString(t.Month().String())
			default:
				b.WriteString(t.Month().String()[:1])
			}
		case 'n':
			writePadded(&b, t.Minute(), tok.count)
		case 'd':
			switch tok.count {
			case 1, 2:
				writePadded(&b, t.Day(), tok.count)
			case 3:
				b.WriteString(t.Weekday().String()[:3])
			default:
				b.WriteString(t.Weekday().String())
			}
		case 'h':
			hour := t.Hour()
			if hasAMPM {
				hour %= 12
				if hour == 0 {
					hour = 12
				}
			}
			writePadded(&b, hour, tok.count)
		case 's':
			writePadded(&b, t.Second(), tok.count)
		case 'f':
			digits := t.Nanosecond() / int(math.Pow10(9-tok.count))
			fmt.Fprintf(&b, ".%0*d", tok.count, digits)
		case 'a':
			b.WriteString(ampm(tok.text, t.Hour() >= 12))
		case 'e':
			var total float64
			switch tok.unit {
			case 'h':
				total = serial * 24
			case 'm':
				total = serial * 24 * 60
			default:
				total = math.Round(serial * 24 * 60 * 60)
			}
			fmt.Fprintf(&b, "%0*d", tok.count, int64(math.Floor(total+1e-9)))
		}
	}
	return b.String()
}

func writePadded(b *strings.Builder, v, count int) {
	if count >= 2 {
		fmt.Fprintf(b, "%02d", v)
		return
	}
	b.WriteString(strconv.Itoa(v))
}

func ampm(pattern string, pm bool) string {
	var out string
	if len(pattern) == 3 {
		out = "A"
		if pm {
			out = "P"
		}
	} else {
		out = "AM"
		if pm {
			out = "PM"
		}
	}
	if unicode.IsLower(rune(pattern[0])) {
		return strings.ToLower(out)
	}
	return out
}

// numberSpec is the parsed form of a numeric format section.
type numberSpec struct {
	prefix, suffix string
	intDigits      int
	minInt         int
	decimalPoint   bool
	decDigits      int
	minDec         int
	thousands      bool
	scale          float64
	exponent       bool
	expSign        bool
	expDigits      int
}

func parseNumberSpec(items []nfp.Token) (numberSpec, bool) {
	spec := numberSpec{scale: 1}
	var prefix, suffix strings.Builder
	seenDigit := false
	inExponent := false
	scaling := false
	lit := func(s string) {
		if seenDigit {
			suffix.WriteString(s)
		} else {
			prefix.WriteString(s)
		}
	}

	for i, token := range items {
		switch token.TType {
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDigitalPlaceHolder:
			if suffix.Len() > 0 && !inExponent {
				// digits after a literal, e.g. phone style patterns
				return spec, false
			}
			seenDigit = true
			for _, c := range token.TValue {
				switch {
				case inExponent:
					spec.expDigits++
				case spec.decimalPoint:
					spec.decDigits++
					if c == '0' {
						spec.minDec = spec.decDigits
					}
				default:
					spec.intDigits++
					if c == '0' {
						spec.minInt++
					}
				}
			}
		case nfp.TokenTypeDecimalPoint:
			if spec.decimalPoint || inExponent || (!seenDigit && !placeholderFollows(items, i)) {
				lit(token.TValue)
				continue
			}
			seenDigit = true
			spec.decimalPoint = true
		case nfp.TokenTypeThousandsSeparator:
			switch {
			case seenDigit && !spec.decimalPoint && placeholderFollows(items, i) && isPlaceholder(items[i+1]):
				spec.thousands = true
			case seenDigit:
				spec.scale /= 1000
				scaling = true
			default:
				lit(token.TValue)
			}
			continue
		case nfp.TokenTypeLiteral:
			if scaling && strings.Trim(token.TValue, ",") == "" {
				for range token.TValue {
					spec.scale /= 1000
				}
				continue
			}
			lit(token.TValue)
		case nfp.TokenTypePercent:
			for range token.TValue {
				spec.scale *= 100
			}
			lit(token.TValue)
		case nfp.TokenTypeExponential:
			if !seenDigit {
				lit(token.TValue)
				continue
			}
			spec.exponent = true
			spec.expSign = strings.HasSuffix(token.TValue, "+")
			inExponent = true
		case nfp.TokenTypeCurrencyLanguage:
			for _, part := range token.Parts {
				if part.Token.TType == nfp.TokenSubTypeCurrencyString {
					lit(part.Token.TValue)
				}
			}
		case nfp.TokenTypeAlignment, nfp.TokenTypeRepeatsChar, nfp.TokenTypeColor,
			nfp.TokenTypeCondition, nfp.TokenTypeSwitchArgument:
		case nfp.TokenTypeTextPlaceHolder:
			return spec, false
		default:
			lit(token.TValue)
		}
		scaling = false
	}
	spec.prefix = prefix.String()
	spec.suffix = suffix.String()
	return spec, true
}

func placeholderFollows(items []nfp.Token, i int) bool {
	for _, token := range items[i+1:] {
		if isPlaceholder(token) {
			return true
		}
	}
	return false
}

// render formats a non-negative value.
func (s numberSpec) render(value float64) string {
	value *= s.scale
	var body string
	if s.exponent {
		body = s.renderScientific(value)
	} else {
		body = s.renderFixed(value)
	}
	return s.prefix + body + s.suffix
}

func (s numberSpec) renderFixed(value float64) string {
	intPart, fracPart := splitDecimal(roundHalfUp(value, s.decDigits))
	return s.composeDigits(intPart, fracPart)
}

func (s numberSpec) composeDigits(intPart, fracPart string) string {
	if intPart == "0" && s.minInt == 0 {
		intPart = ""
	}
	for len(intPart) < s.minInt {
		intPart = "0" + intPart
	}
	if s.thousands {
		intPart = groupThousands(intPart)
	}
	fracPart = strings.TrimRight(fracPart, "0")
	for len(fracPart) < s.minDec {
		fracPart += "0"
	}
	if !s.decimalPoint {
		return intPart
	}
	return intPart + "." + fracPart
}

func (s numberSpec) renderScientific(value float64) string {
	exp := 0
	if value != 0 {
		exp = int(math.Floor(math.Log10(value)))
		if s.intDigits > 1 {
			exp -= ((exp % s.intDigits) + s.intDigits) % s.intDigits
		}
	}
	mantissa := roundHalfUp(value/math.Pow10(exp), s.decDigits)
	if m, _ := strconv.ParseFloat(mantissa, 64); s.intDigits <= 1 && m >= 10 {
		exp++
		mantissa = roundHalfUp(value/math.Pow10(exp), s.decDigits)
	}
	intPart, fracPart := splitDecimal(mantissa)
	body := s.composeDigits(intPart, fracPart)

	sign := ""
	if exp < 0 {
		sign = "-"
		exp = -exp
	} else if s.expSign {
		sign = "+"
	}
	return fmt.Sprintf("%sE%s%0*d", body, sign, s.expDigits, exp)
}

// fractionSpec is the parsed form of a fraction section such as "# ?/?" or
// "# ?/8".
type fractionSpec struct {
	prefix, separator, suffix string
	integer                   bool
	minInt                    int
	denominatorDigits         int
	denominator               int64
}

func parseFractionSpec(items []nfp.Token) (fractionSpec, bool) {
	var spec fractionSpec
	slash := -1
	for i, token := range items {
		if token.TType == nfp.TokenTypeFraction {
			slash = i
			break
		}
	}
	if slash < 1 || slash+1 >= len(items) || !isPlaceholder(items[slash-1]) {
		return spec, false
	}

	switch next := items[slash+1]; next.TType {
	case nfp.TokenTypeDenominator:
		d, err := strconv.ParseInt(next.TValue, 10, 64)
		if err != nil || d <= 0 {
			return spec, false
		}
		spec.denominator = d
	case nfp.TokenTypeDigitalPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeZeroPlaceHolder:
		spec.denominatorDigits = len(next.TValue)
	default:
		return spec, false
	}

	var prefix, separator, suffix strings.Builder
	for i, token := range items {
		var text string
		switch token.TType {
		case nfp.TokenTypeLiteral:
			text = token.TValue
		case nfp.TokenTypeCurrencyLanguage:
			for _, part := range token.Parts {
				if part.Token.TType == nfp.TokenSubTypeCurrencyString {
					text += part.Token.TValue
				}
			}
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder, nfp.TokenTypeDigitalPlaceHolder:
			if i < slash-1 {
				spec.integer = true
				spec.minInt += strings.Count(token.TValue, "0")
			}
		case nfp.TokenTypeFraction, nfp.TokenTypeDenominator, nfp.TokenTypeAlignment,
			nfp.TokenTypeRepeatsChar, nfp.TokenTypeColor, nfp.TokenTypeCondition:
		default:
			return spec, false
		}
		switch {
		case i > slash+1:
			suffix.WriteString(text)
		case spec.integer && i < slash-1:
			separator.WriteString(text)
		case i < slash-1:
			prefix.WriteString(text)
		}
	}
	spec.prefix = prefix.String()
	spec.separator = separator.String()
	spec.suffix = suffix.String()
	return spec, true
}

// render formats a non-negative value as a whole part and a fraction.
func (s fractionSpec) render(value float64) string {
	whole, frac := math.Modf(value)
	if !s.integer {
		whole, frac = 0, value
	}
	num, den := s.approximate(frac)
	if s.integer && num == den {
		whole++
		num = 0
	}

	var b strings.Builder
	b.WriteString(s.prefix)
	showWhole := s.integer && (whole != 0 || num == 0 || s.minInt > 0)
	if showWhole {
		b.WriteString(strconv.FormatFloat(whole, 'f', 0, 64))
	}
	if num != 0 || !s.integer {
		if showWhole {
			b.WriteString(s.separator)
		}
		b.WriteString(strconv.FormatInt(num, 10) + "/" + strconv.FormatInt(den, 10))
	}
	b.WriteString(s.suffix)
	return strings.TrimSpace(b.String())
}

// approximate returns the closest fraction to value whose denominator fits the
// section, preferring the smallest denominator on ties.
func (s fractionSpec) approximate(value float64) (int64, int64) {
	if s.denominator > 0 {
		return int64(math.Round(value * float64(s.denominator))), s.denominator
	}
	limit := int64(math.Pow10(s.denominatorDigits)) - 1
	bestNum, bestDen := int64(math.Round(value)), int64(1)
	bestErr := math.Abs(value - float64(bestNum))
	for d := int64(2); d <= limit && bestErr > 0; d++ {
		n := int64(math.Round(value * float64(d)))
		if err := math.Abs(value - float64(n)/float64(d)); err < bestErr {
			bestNum, bestDen, bestErr = n, d, err
		}
	}
	return bestNum, bestDen
}

func splitDecimal(s string) (string, string) {
	if dot := strings.IndexByte(s, '.'); dot != -1 {
		return s[:dot], s[dot+1:]
	}
	return s, ""
}

// roundHalfUp rounds a non-negative value to decimals places, away from zero on
// ties of its shortest decimal representation.
func roundHalfUp(value float64, decimals int) string {
	digits := strconv.FormatFloat(value, 'f', -1, 64)
	intPart, fracPart := splitDecimal(digits)
	if len(fracPart) <= decimals {
		return padFraction(intPart, fracPart, decimals)
	}

	roundUp := fracPart[decimals] >= '5'
	kept := []byte(intPart + fracPart[:decimals])
	if roundUp {
		i := len(kept) - 1
		for ; i >= 0; i-- {
			if kept[i] == '9' {
				kept[i] = '0'
				continue
			}
			kept[i]++
			break
		}
		if i < 0 {
			kept = append([]byte{'1'}, kept...)
		}
	}
	intLen := len(kept) - decimals
	return padFraction(string(kept[:intLen]), string(kept[intLen:]), decimals)
}

func padFraction(intPart, fracPart string, decimals int) string {
	if decimals == 0 {
		return intPart
	}
	for len(fracPart) < decimals {
		fracPart += "0"
	}
	return intPart + "." + fracPart
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatGeneral renders a number the way the General format does.
func formatGeneral(value float64) string {
	abs := math.Abs(value)
	if (abs >= math.SmallestNonzeroFloat64 && abs < minNonScientificNumber) || abs >= maxNonScientificNumber {
		return strconv.FormatFloat(value, 'E', -1, 64)
	}
	text := roundHalfUp(abs, generalDecimals)
	if strings.Contains(text, ".") {
		text = strings.TrimRight(strings.TrimRight(text, "0"), ".")
	}
	if value < 0 && text != "0" {
		return "-" + text
	}
	return text
}
