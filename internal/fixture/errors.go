package fixture

import "errors"

var ErrFileDoesNotExist = errors.New("fixture file does not exist")
var ErrReadFixtureFail = errors.New("failed to read fixture file")
var ErrFixtureParsingFail = errors.New("failed to parse fixture file")
