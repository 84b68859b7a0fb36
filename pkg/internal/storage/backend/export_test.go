package backend

var FirstRemoveError = firstRemoveError
