package symbols

import "sync"

var preludeDeclarations = []string{
	"class Any",
	"class Nothing",
	"class Unit",
	"class Number",
	"class CharSequence",
	"class Comparable<in T>",
	"class Int : Number, Comparable<Int>",
	"class Long : Number, Comparable<Long>",
	"class Boolean : Comparable<Boolean>",
	"class String : CharSequence, Comparable<String>",
	"class Array<out T>",
	"class IntArray",
	"class LongArray",
	"class BooleanArray",
	"class Collection<out E>",
	"class List<out E> : Collection<E>",
	"fun <T> arrayOf(vararg elements: T): Array<T>",
	"fun <T> emptyArray(): Array<T>",
	"fun intArrayOf(vararg elements: Int): IntArray",
	"fun longArrayOf(vararg elements: Long): LongArray",
}

// Prelude returns the builtin declarations every Table starts from
var Prelude = sync.OnceValue(func() *Table {
	table, err := Empty().Declare(preludeDeclarations...)
	if err != nil {
		panic("invalid prelude: " + err.Error())
	}
	return table
})
