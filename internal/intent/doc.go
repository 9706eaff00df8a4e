// Package intent maps recognized utterance text to an FAQ category and the
// canned response for it. Classification is keyword-table matching with a
// fractional score and a low-confidence cutoff.
package intent
