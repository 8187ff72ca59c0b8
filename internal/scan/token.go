// Package scan implements the batch-scan interpreter: a line classifier and
// three state machines that apply scanned location, bid, and bidder-id codes
// to the show inventory as one atomic unit of work per batch.
package scan

import (
	"regexp"
	"strconv"
	"strings"
)

// TokenKind identifies which grammar rule matched a scanned line.
type TokenKind int

const (
	TokenUnknown TokenKind = iota
	TokenLocationOpen
	TokenLocationClose
	TokenPiece
	TokenPerson
	TokenBidder
	TokenPrice
	TokenNormalSale
	TokenBuyNow
	TokenNoBids
	TokenAuctionSale
	TokenAuctionComplete
	TokenNotForSale
)

// Token is one classified line with its captured fields. Only the fields for
// the matched kind are populated.
type Token struct {
	Kind       TokenKind
	Text       string
	Location   string // TokenLocationOpen
	Artist     int    // TokenPiece
	PieceID    int    // TokenPiece
	PersonID   int    // TokenPerson
	BidderCode string // TokenBidder
	Amount     int    // TokenPrice
}

// Scan codes match the whole trimmed line. The scanners print a fixed prefix
// letter followed by the encoded value, so every pattern is anchored at both
// ends.
var (
	locationOpenRe  = regexp.MustCompile(`^[PL](\w\d+)$`)
	locationCloseRe = regexp.MustCompile(`^[PL]END$`)
	pieceRe         = regexp.MustCompile(`^A(\d+)P(\d+)$`)
	personRe        = regexp.MustCompile(`^P(\d+)$`)
	bidderRe        = regexp.MustCompile(`^B(\d+)$`)
	priceRe         = regexp.MustCompile(`^(\d+)$`)

	normalSaleRe      = regexp.MustCompile(`^NS$`)
	buyNowRe          = regexp.MustCompile(`^NBN$`)
	noBidsRe          = regexp.MustCompile(`^NB$`)
	auctionSaleRe     = regexp.MustCompile(`^NAS$`)
	auctionCompleteRe = regexp.MustCompile(`^NAC$`)
	notForSaleRe      = regexp.MustCompile(`^NFS$`)
)

type pattern struct {
	kind TokenKind
	re   *regexp.Regexp
}

// grammar is the immutable ordered rule table for one batch type. The first
// match wins, so the bare-digits price rule always sits last in a table that
// contains it.
type grammar []pattern

var (
	locationGrammar = grammar{
		{TokenLocationOpen, locationOpenRe},
		{TokenLocationClose, locationCloseRe},
		{TokenPiece, pieceRe},
	}
	bidGrammar = grammar{
		{TokenPiece, pieceRe},
		{TokenBidder, bidderRe},
		{TokenNormalSale, normalSaleRe},
		{TokenBuyNow, buyNowRe},
		{TokenNoBids, noBidsRe},
		{TokenAuctionSale, auctionSaleRe},
		{TokenAuctionComplete, auctionCompleteRe},
		{TokenNotForSale, notForSaleRe},
		{TokenPrice, priceRe},
	}
	bidderIDGrammar = grammar{
		{TokenPerson, personRe},
		{TokenBidder, bidderRe},
	}
)

// classify tries each rule in table order and returns the first match with
// its captures, or a TokenUnknown. Pure; no side effects.
func classify(text string, g grammar) Token {
	for _, p := range g {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		tok := Token{Kind: p.kind, Text: text}
		switch p.kind {
		case TokenLocationOpen:
			tok.Location = m[1]
		case TokenPiece:
			artist, err1 := strconv.Atoi(m[1])
			pieceID, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				continue
			}
			tok.Artist = artist
			tok.PieceID = pieceID
		case TokenPerson:
			id, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			tok.PersonID = id
		case TokenBidder:
			tok.BidderCode = m[1]
		case TokenPrice:
			amount, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			tok.Amount = amount
		}
		return tok
	}
	return Token{Kind: TokenUnknown, Text: text}
}

// scanLine is one non-blank input line with its 1-based position. Blank lines
// are dropped but still advance the numbering so diagnostics match the raw
// batch text.
type scanLine struct {
	num  int
	text string
}

// splitLines splits on newlines directly rather than through a scanner, so
// no token-size cap can silently swallow an oversized junk line; every line
// reaches a machine and gets a diagnostic if it is garbage.
func splitLines(data string) []scanLine {
	var out []scanLine
	for i, raw := range strings.Split(data, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		out = append(out, scanLine{num: i + 1, text: text})
	}
	return out
}
