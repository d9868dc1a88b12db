package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")
var ErrorInvalidArgument = errors.New("invalid argument")
var ErrorInvalidState = errors.New("invalid state")
var ErrorUnauthorized = errors.New("unauthorized")
var ErrorInsufficientBalance = errors.New("insufficient balance")

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
