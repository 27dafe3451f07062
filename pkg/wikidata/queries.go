package wikidata

import (
	"fmt"
	"strings"
)

const queryPrefixes = `PREFIX schema: <http://schema.org/>
PREFIX wd: <http://www.wikidata.org/entity/>
PREFIX wdt: <http://www.wikidata.org/prop/direct/>
PREFIX wikibase: <http://wikiba.se/ontology#>
PREFIX bd: <http://www.bigdata.com/rdf#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX geo: <http://www.opengis.net/ont/geosparql#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
`

// NotablesColumns is the output column order of the notables profile
var NotablesColumns = Columns(
	"person", "personLabel", "birthdate", "birthYear", "genderLabel",
	"GermanWikipedia", "EnglishWikipedia",
)

// GeoColumns is the output column order of the geodata profile
var GeoColumns = Columns(
	"person", "personLabel", "birthdate", "birthplace", "placeOfDeath",
	"birthplaceCoordinates",
)

// OccupationColumns is the output column order of the occupation lookup
var OccupationColumns = Columns("occupationLabel", "dateOfDeath")

// cursorFilter builds the keyset pagination clause on (birthdate, person).
// The cursor is exclusive: rows strictly after the last processed record.
func cursorFilter(lastBirthdate, lastPerson string) string {
	if lastBirthdate == "" || lastPerson == "" {
		return ""
	}
	return fmt.Sprintf(
		`FILTER((?birthdate > "%s"^^xsd:dateTime) || (?birthdate = "%s"^^xsd:dateTime && STR(?person) > "%s"))`,
		lastBirthdate, lastBirthdate, lastPerson,
	)
}

// NotablesQuery builds a page query for German notables born inside the year
// window: label, gender, birth year, and German/English Wikipedia page URLs.
func NotablesQuery(startYear, endYear int, lastBirthdate, lastPerson string, limit int) string {
	var b strings.Builder
	b.WriteString(queryPrefixes)
	fmt.Fprintf(&b, `
SELECT ?person ?personLabel ?birthdate ?birthYear ?genderLabel
       (COALESCE(?germanPageUrl, "No") AS ?GermanWikipedia)
       (COALESCE(?englishPageUrl, "No") AS ?EnglishWikipedia)
WHERE {
    ?person wdt:P27 wd:Q183.
    ?person wdt:P569 ?birthdate.
    ?person wdt:P21 ?gender .
    ?gender rdfs:label ?genderLabel .
    FILTER(LANG(?genderLabel) = "de")

    FILTER(YEAR(?birthdate) >= %d && YEAR(?birthdate) <= %d)
    BIND(YEAR(?birthdate) AS ?birthYear)

    ?germanPage schema:about ?person ;
                schema:inLanguage "de" ;
                schema:isPartOf <https://de.wikipedia.org/> .
    BIND(STR(?germanPage) AS ?germanPageUrl)

    OPTIONAL {
        ?englishPage schema:about ?person ;
                     schema:inLanguage "en" ;
                     schema:isPartOf <https://en.wikipedia.org/> .
        BIND(STR(?englishPage) AS ?englishPageUrl)
    }

    SERVICE wikibase:label {
        bd:serviceParam wikibase:language "de".
        ?person rdfs:label ?personLabel .
    }

    %s
}
ORDER BY ?birthdate ?person
LIMIT %d`, startYear, endYear, cursorFilter(lastBirthdate, lastPerson), limit)
	return b.String()
}

// GeoQuery builds a page query for German notables born inside the year
// window: birthplace, place of death, and birthplace coordinates.
func GeoQuery(startYear, endYear int, lastBirthdate, lastPerson string, limit int) string {
	var b strings.Builder
	b.WriteString(queryPrefixes)
	fmt.Fprintf(&b, `
SELECT ?person ?personLabel ?birthdate ?birthplace ?placeOfDeath ?birthplaceCoordinates
WHERE {
    ?person wdt:P27 wd:Q183.
    ?person wdt:P569 ?birthdate.
    ?person wdt:P19 ?birthplace.
    OPTIONAL { ?person wdt:P20 ?placeOfDeath. }
    OPTIONAL { ?birthplace wdt:P625 ?birthplaceCoordinates. }

    FILTER(YEAR(?birthdate) >= %d && YEAR(?birthdate) <= %d)

    ?germanPage schema:about ?person ;
                schema:inLanguage "de" ;
                schema:isPartOf <https://de.wikipedia.org/> .

    SERVICE wikibase:label {
        bd:serviceParam wikibase:language "de".
        ?person rdfs:label ?personLabel .
    }

    %s
}
ORDER BY ?birthdate ?person
LIMIT %d`, startYear, endYear, cursorFilter(lastBirthdate, lastPerson), limit)
	return b.String()
}

// PersonGeoQuery builds a single-entity geodata query for one Wikidata ID
func PersonGeoQuery(entityID string) string {
	var b strings.Builder
	b.WriteString(queryPrefixes)
	fmt.Fprintf(&b, `
SELECT ?person ?personLabel ?birthdate ?birthplace ?placeOfDeath ?birthplaceCoordinates
WHERE {
    BIND(wd:%s AS ?person)
    ?person wdt:P569 ?birthdate.
    ?person wdt:P19 ?birthplace.
    OPTIONAL { ?person wdt:P20 ?placeOfDeath. }
    OPTIONAL { ?birthplace wdt:P625 ?birthplaceCoordinates. }

    SERVICE wikibase:label {
        bd:serviceParam wikibase:language "de".
        ?person rdfs:label ?personLabel .
    }
}`, entityID)
	return b.String()
}

// OccupationQuery builds an occupation and date-of-death query for one
// Wikidata ID, labels restricted to the given language
func OccupationQuery(entityID, lang string) string {
	return fmt.Sprintf(`PREFIX wd: <http://www.wikidata.org/entity/>
PREFIX wdt: <http://www.wikidata.org/prop/direct/>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
SELECT ?occupationLabel ?dateOfDeath WHERE {
    wd:%s wdt:P106 ?occupation .
    ?occupation rdfs:label ?occupationLabel .
    OPTIONAL { wd:%s wdt:P570 ?dateOfDeath. }
    FILTER(LANG(?occupationLabel) = "%s")
}`, entityID, entityID, lang)
}

// EntityIDFromURI extracts the trailing identifier from an entity URI,
// e.g. "http://www.wikidata.org/entity/Q7251" -> "Q7251". Plain IDs pass
// through unchanged.
func EntityIDFromURI(uri string) string {
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return uri
}
