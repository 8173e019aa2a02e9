/*
Package pwsafe reads and writes Password Safe V3 databases: a single file
holding a password protected, authenticated list of entries.


Encryption

The password is stretched with iterated SHA-256 over the password and a random
32 bytes salt. The stretched key decrypts, with Twofish in ECB mode, two random
32 bytes keys stored in the file: K encrypts the records with Twofish in CBC
mode and L keys an HMAC-SHA256 computed over the content of every field.

A new salt, new keys and a new IV are generated every time the database is
saved.


Binary Format

All integers are little endian.

   4 bytes for the "PWS3" tag

   32 bytes for the salt

   4 bytes for the number of stretching iterations

   32 bytes for SHA-256 of the stretched key, used to check the password

   32 bytes for K and 32 bytes for L, each encrypted as two Twofish blocks
   with the stretched key

   16 bytes for the CBC initialization vector

   The encrypted records, a multiple of 16 bytes

   16 bytes for the "PWS3-EOFPWS3-EOF" marker

   32 bytes for the HMAC

Once decrypted, records are sequences of fields. A field is a 4 bytes length,
a 1 byte type and the field data, padded so that the whole field is a
multiple of 16 bytes. A field of type 0xff ends the record. The first record
is the database header, the following ones are the entries. The HMAC covers
the unpadded field data only.

Field types are described by HeaderCatalog and BodyCatalog. Fields of a type
missing from the catalog are skipped when reading and written back unchanged
on save.


Limitation

The whole file is loaded in memory. The package does not lock the file:
concurrent writers must coordinate outside of it.
*/
package pwsafe
