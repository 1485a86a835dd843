package repository

import "gorm.io/datatypes"

// jsonNull keeps JSON columns non-NULL; a NULL json column does not scan back
var jsonNull = datatypes.JSON("null")

// toJSONColumn stores raw payload bytes, "null" when there are none
func toJSONColumn(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return jsonNull
	}
	return datatypes.JSON(raw)
}

// fromJSONColumn is the inverse of toJSONColumn
func fromJSONColumn(j datatypes.JSON) []byte {
	if len(j) == 0 || string(j) == string(jsonNull) {
		return nil
	}
	return []byte(j)
}
