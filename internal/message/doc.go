// Package message defines the external message format stored in
// conversation history and converts it to and from the model taxonomy.
//
// Conversion is lossless for supported roles: FromModel(ToModel(m)) returns
// a message equal to m.
package message
